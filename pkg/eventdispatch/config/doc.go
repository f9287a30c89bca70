/*
Package config loads dispatcher settings from YAML or JSON.

# Overview

Settings describes the tunables an embedding program may want to keep
outside code: the dispatcher name used in logs and metrics, whether live
deliveries to one listener may overlap, and which observability features
are enabled.

# Basic Usage

	settings, err := config.FromFile("dispatcher.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	d := eventdispatch.New(policy, eventdispatch.WithSettings(settings))

A YAML file looks like:

	name: orders
	shared_delivery: false
	metrics: true
	tracing: true
	log_level: info

Missing fields keep the values from Default(). Unknown fields are rejected
so typos surface at load time.
*/
package config

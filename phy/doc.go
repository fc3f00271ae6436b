// Package phy defines the physical-layer contract the LINK layer builds on:
// a half-duplex radio abstraction that buffers writes until explicitly
// flushed and delivers inbound data one whole frame at a time.
//
// Deployments provide a concrete [Layer] (a LoRa radio driver, a serial
// tunnel, or — for development and tests — the loopback pair in
// github.com/windlore/telemetry/phy/loopback).
package phy

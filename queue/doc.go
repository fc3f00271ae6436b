// Package queue implements the bounded single-producer/single-consumer
// queues that sit between the sampler and uplink tasks (sensor side) and
// between the uplink decoder and the value sink (gateway side).
//
// Both queues drop the newest item when full rather than blocking the
// producer or evicting an older item, matching the protocol's "at most the
// last N pending values matter" discipline.
package queue

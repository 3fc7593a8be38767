// Package redis provides Redis-backed adapters: a distributed DeviceLocker so
// several scanning processes can share camera hardware safely, and a
// ResultSink that hands detections to downstream cataloguing services.
package redis

/*
Package scanner implements the scan loop controller: the state machine that
owns the lifecycle of one live barcode scanning session.

	Idle -> Starting -> Ready <-> Scanning -> Detected -> Ready

The controller wires together the camera session, the region-of-interest
tracker, a decoder built for the retail symbologies, the ISBN normalizer and
the result sink. Frames are sampled through a ports.FrameScheduler, one
request per tick, so a slow decode never piles up work.

Each scan run carries its own decoder, region tracker and detection lock.
Stopping the loop replaces the run; a tick that belongs to a replaced run
never invokes the decoder and never emits. Decoding happens outside the
controller mutex, and a result is committed only if its run is still current
and unlocked, which makes detection at most once per run.
*/
package scanner

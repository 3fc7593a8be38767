/*
Package domain contains the core models of the shelfscan scanning engine.

It defines the entities of the scan state machine and the values that flow
between the camera, the decode capability and the result sink. This package
is kept pure and free of I/O so the controller and every adapter can share it.

# Key Entities

  - Status: the scan state machine (Idle, Starting, Ready, Scanning, Detected, Error).
  - ROI: the central sub-rectangle of a frame searched for a barcode.
  - Frame: a single video frame handed out by a camera track.
  - DecodeResult: the tagged outcome of one decode attempt (Found, NotFound, Error).
  - CapabilitySet: optional hardware controls reported by a camera track (torch, zoom).
*/
package domain

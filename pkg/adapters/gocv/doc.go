// Package gocv adapts an OpenCV video capture device to the shelfscan
// MediaCapture port. It is only compiled with the gocv build tag, since it
// needs the OpenCV shared libraries.
package gocv

/*
Package shelfscan is a live barcode scanning engine that turns a camera stream
into validated ISBNs.

It targets the library or shop counter: point a camera at the back of a book,
and each EAN-13 Bookland (978/979) or ISBN-10 symbol that crosses the centre
of the frame is decoded, normalised and handed to your pipeline exactly once.

# Concept

The engine is a small state machine (Idle, Starting, Ready, Scanning,
Detected) driven by scanner.Controller. The camera, the frame clock, the
barcode decoder and the destination of each ISBN are ports, so the same
engine runs against a webcam, a directory of photographs or frames you
already hold in memory. This Hexagonal Architecture allows shelfscan to be
embedded in a CLI, an HTTP service or an AI agent toolbox.

# Key Features

  - Region of Interest: only the centred 60% x 40% of each frame is decoded.
  - Bounded Work: one frame request outstanding at a time, nothing queues up.
  - Exactly Once: a detection locks the scan run before it reaches the sink.
  - Clean Teardown: stopping releases every camera track and cancels the loop.

# Usage

For a one-shot decode of an image, use DecodeImage or DecodeFile:

	res, err := shelfscan.DecodeFile("back-cover.jpg")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.ISBN)

For a live loop, build a controller over a ports.MediaCapture:

	ctrl := scanner.New(capture, sink.Func(func(ctx context.Context, isbn string) error {
		log.Println("captured", isbn)
		return nil
	}))
	defer ctrl.Close()

	if err := ctrl.StartCamera(ctx); err != nil {
		log.Fatal(err)
	}
	if err := ctrl.StartScan(ctx); err != nil {
		log.Fatal(err)
	}
*/
package shelfscan

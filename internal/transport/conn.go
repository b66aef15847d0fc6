package transport

import "google.golang.org/protobuf/types/known/structpb"

// Conn carries request and reply frames. Binary reports whether a frame
// travelled proto encoded rather than as protojson text.
type Conn interface {
	ReadFrame() (msg *structpb.Struct, binary bool, err error)
	WriteFrame(msg *structpb.Struct, binary bool) error
	Close() error
}

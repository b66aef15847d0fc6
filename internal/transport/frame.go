package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"mvc-server/internal/protocol"
)

var ErrBadFrame = errors.New("malformed request frame")

// FrameRequest is a dispatch request carried by one websocket frame.
type FrameRequest struct {
	ID     string
	Path   string
	Params url.Values
}

// DecodeRequest reads {id, path, params} from msg. Parameter values may be
// strings, numbers, booleans or lists of those; a list yields repeated
// values.
func DecodeRequest(msg *structpb.Struct) (*FrameRequest, error) {
	fields := msg.GetFields()
	req := &FrameRequest{Params: url.Values{}}

	if v, ok := fields[protocol.FrameID]; ok {
		id, err := scalarText(v)
		if err != nil {
			return nil, fmt.Errorf("%w: id: %v", ErrBadFrame, err)
		}
		req.ID = id
	}

	path := fields[protocol.FramePath].GetStringValue()
	if path == "" {
		return nil, fmt.Errorf("%w: missing path", ErrBadFrame)
	}
	req.Path = path

	for name, v := range fields[protocol.FrameParams].GetStructValue().GetFields() {
		if list, ok := v.GetKind().(*structpb.Value_ListValue); ok {
			for _, item := range list.ListValue.GetValues() {
				text, err := scalarText(item)
				if err != nil {
					return nil, fmt.Errorf("%w: param %s: %v", ErrBadFrame, name, err)
				}
				req.Params.Add(name, text)
			}
			continue
		}
		text, err := scalarText(v)
		if err != nil {
			return nil, fmt.Errorf("%w: param %s: %v", ErrBadFrame, name, err)
		}
		req.Params.Add(name, text)
	}
	return req, nil
}

func scalarText(v *structpb.Value) (string, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value %T", k)
	}
}

// EncodeReply builds the {id, status, body} reply frame.
func EncodeReply(id string, status int, body string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		protocol.FrameID:     structpb.NewStringValue(id),
		protocol.FrameStatus: structpb.NewNumberValue(float64(status)),
		protocol.FrameBody:   structpb.NewStringValue(body),
	}}
}

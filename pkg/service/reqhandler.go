package service

import (
	"framebuf/pkg/proto"
)

type (
	// Request is one fully parsed inbound message.
	Request struct {
		OpID   string
		Start  proto.StartLine
		Header *proto.Fields
		Body   []byte
	}

	IRequestHandler interface {
		Init()
		Handle(req *Request) (proto.ResponseHead, []byte)
		Finish()
	}
)

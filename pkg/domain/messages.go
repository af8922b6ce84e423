package domain

import "github.com/aretw0/arbor/pkg/message"

// FlashKeyMessages holds the *message.Context of the current request.
const FlashKeyMessages = "messages"

// Messages returns the message context of rc, creating it in flash scope on
// first use. Views see the messages of the request that rendered them.
func Messages(rc RequestContext) *message.Context {
	flash := rc.FlashScope()
	if c, ok := flash.Get(FlashKeyMessages).(*message.Context); ok {
		return c
	}
	c := message.NewContext(nil)
	if flash != nil {
		flash.Put(FlashKeyMessages, c)
	}
	return c
}

package http

type connState uint8

const (
	eReadingHeaders connState = iota + 1
	eReadingBody
	eDispatching
	eWriting
	eKeepAlive
	eClose
	eConsumed
)

func (s connState) String() string {
	switch s {
	case eReadingHeaders:
		return "reading headers"
	case eReadingBody:
		return "reading body"
	case eDispatching:
		return "dispatching"
	case eWriting:
		return "writing"
	case eKeepAlive:
		return "keep-alive"
	case eClose:
		return "close"
	case eConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

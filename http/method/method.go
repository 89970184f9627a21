package method

type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
)

var names = [...]string{
	GET:     "GET",
	HEAD:    "HEAD",
	POST:    "POST",
	PUT:     "PUT",
	DELETE:  "DELETE",
	CONNECT: "CONNECT",
	OPTIONS: "OPTIONS",
	TRACE:   "TRACE",
	PATCH:   "PATCH",
}

func (m Method) String() string {
	if int(m) >= len(names) {
		return ""
	}

	return names[m]
}

// Bodyless reports whether a request with this method must not carry a body.
// A message body arriving for such a method is a hard protocol violation at
// the firewall boundary, not a tolerated oddity.
func (m Method) Bodyless() bool {
	switch m {
	case GET, HEAD, DELETE, TRACE:
		return true
	default:
		return false
	}
}

func Parse(str string) Method {
	switch len(str) {
	case 3:
		if str == "GET" {
			return GET
		} else if str == "PUT" {
			return PUT
		}
	case 4:
		if str == "POST" {
			return POST
		} else if str == "HEAD" {
			return HEAD
		}
	case 5:
		if str == "PATCH" {
			return PATCH
		} else if str == "TRACE" {
			return TRACE
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		if str == "CONNECT" {
			return CONNECT
		} else if str == "OPTIONS" {
			return OPTIONS
		}
	}

	return Unknown
}

package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorKind classifies a failed Result so the HTTP layer can pick a status code.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInput
	KindUpstream
	KindPersistence
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	case KindInternal:
		return "internal"
	default:
		return "none"
	}
}

// Result is the uniform outcome returned to callers of the pipeline.
type Result struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Kind    ErrorKind   `json:"-"`
}

// Success builds a success result.
func Success(message string, data interface{}) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data}
}

// Failure builds an error result of the given kind.
func Failure(kind ErrorKind, message string) Result {
	return Result{Status: StatusError, Message: message, Kind: kind}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

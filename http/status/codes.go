package status

type Code uint16

const (
	Continue           Code = 100
	SwitchingProtocols Code = 101

	OK             Code = 200
	Created        Code = 201
	Accepted       Code = 202
	NoContent      Code = 204
	PartialContent Code = 206

	MovedPermanently Code = 301
	Found            Code = 302
	NotModified      Code = 304

	BadRequest                   Code = 400
	Unauthorized                 Code = 401
	Forbidden                    Code = 403
	NotFound                     Code = 404
	MethodNotAllowed             Code = 405
	RequestTimeout               Code = 408
	LengthRequired               Code = 411
	PreconditionFailed           Code = 412
	RequestEntityTooLarge        Code = 413
	RequestURITooLong            Code = 414
	UnsupportedMediaType         Code = 415
	RequestedRangeNotSatisfiable Code = 416
	UpgradeRequired              Code = 426
	HeaderFieldsTooLarge         Code = 431

	InternalServerError     Code = 500
	NotImplemented          Code = 501
	BadGateway              Code = 502
	ServiceUnavailable      Code = 503
	GatewayTimeout          Code = 504
	HTTPVersionNotSupported Code = 505
)

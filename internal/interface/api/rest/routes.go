package rest

const (
	// api
	RouteAPI = "/api"

	RouteCreateUser = RouteAPI + "/user"
	RouteUsers      = RouteAPI + "/users"
	RouteUser       = RouteAPI + "/user/:id"
	RouteUpdateUser = RouteAPI + "/update/user/:id"
	RouteDeleteUser = RouteAPI + "/delete/user/:id"

	// static
	RouteUploads    = "/uploads"
	RouteUploadFile = RouteUploads + "/:name"

	// ops
	RouteHealth  = RouteAPI + "/healthz"
	RouteMetrics = RouteAPI + "/metrics"
)

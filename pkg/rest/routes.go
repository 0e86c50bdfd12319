package rest

import "github.com/gin-gonic/gin"

type HttpMethod int

const (
	GET HttpMethod = iota
	POST
	PUT
	PATCH
	DELETE
)

func (m HttpMethod) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case PATCH:
		return "PATCH"
	case DELETE:
		return "DELETE"
	}
	return "UNKNOWN"
}

type Route struct {
	Method      HttpMethod
	Path        string
	HandlerFunc gin.HandlerFunc
	Group       string
}

func NewRoute(method HttpMethod, group, path string, handler gin.HandlerFunc) Route {
	return Route{
		Method:      method,
		Path:        path,
		Group:       group,
		HandlerFunc: handler,
	}
}

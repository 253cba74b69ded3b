package view

import "strings"

// Navigable routes.
const (
	RouteLogin    = "/"
	RouteProducts = "/products"
	RouteProduct  = "/product/"
	RouteCart     = "/cart"
)

// Redirect decides where a navigation to path should go. It returns "" when
// the page may be rendered as requested.
//
// The login page sends authenticated clients to the listing. Every other
// known page requires a session and sends anonymous clients to login.
// Unknown paths always go to login.
func Redirect(path string, authenticated bool) string {
	switch {
	case path == RouteLogin || path == "":
		if authenticated {
			return RouteProducts
		}
		return ""
	case isProtected(path):
		if !authenticated {
			return RouteLogin
		}
		return ""
	default:
		return RouteLogin
	}
}

func isProtected(path string) bool {
	path = strings.TrimSuffix(path, "/")
	if path == RouteProducts || path == RouteCart {
		return true
	}
	id, ok := strings.CutPrefix(path, RouteProduct)
	return ok && id != "" && !strings.Contains(id, "/")
}

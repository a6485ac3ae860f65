package board

import "github.com/google/uuid"

// Route is the outcome of resolving which sheet a request addresses.
type Route struct {
	// ID is the sheet to open.
	ID string
	// Redirect is set when the caller did not name the sheet and should be
	// sent to the address that does.
	Redirect bool
	// Remember is set when ID should become the remembered sheet.
	Remember bool
	// Fresh is set when ID was just minted. The store holds nothing for it.
	Fresh bool
}

// ResolveSheet picks the sheet for a request. An explicitly requested id
// wins and is remembered. Otherwise the remembered id is used, or a new one
// is minted; both cases redirect to the explicit address.
func ResolveSheet(requested, remembered string) Route {
	return resolve(requested, remembered, uuid.NewString)
}

func resolve(requested, remembered string, newID func() string) Route {
	switch {
	case requested != "":
		return Route{ID: requested, Remember: true}
	case remembered != "":
		return Route{ID: remembered, Redirect: true}
	default:
		return Route{ID: newID(), Redirect: true, Remember: true, Fresh: true}
	}
}

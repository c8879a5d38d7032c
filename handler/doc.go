// Package handler turns typed request handlers into http.HandlerFunc.
//
// A handler receives a Context and a request struct filled by binders, and
// returns a Response:
//
//	type searchRequest struct {
//		Query string `query:"q"`
//	}
//
//	func search(ctx handler.Context, req searchRequest) handler.Response {
//		results, err := svc.Search(ctx, req.Query)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(results)
//	}
//
//	r.Get("/search", handler.Wrap(search,
//		handler.WithBinders[handler.Context, searchRequest](binder.Query()),
//		handler.WithErrorHandler[handler.Context, searchRequest](errHandler),
//	))
//
// Binding failures and errors returned through Error reach the configured
// ErrorHandler. NewErrorHandler classifies them into a status code and a
// JSON body of the form {"detail": "...", "code": "..."} and logs them at a
// level matching the status.
package handler

// Package http holds the request/response model handlers work with, the
// errors that map onto status codes and an outbound client.
//
// # Request
//
// Request is built from a RawRequestInput, normally filled from
// *http.Request by FromHTTP. Inputs are parameter packs:
//
//	req, err := gohttp.FromHTTP(r)
//
//	page := req.Params.Int("page", 1)   // form, then query
//	sort := req.Query.String("sort", "id")
//	sid  := req.Cookies.String("SID", "")
//	ua   := req.Header("User-Agent")
//
//	req.Method()  // gohttp.MethodGet, ...
//	req.Path()    // "/api/v1/users", no trailing slash
//	req.IP()      // Client-Ip, X-Forwarded-For or remote address
//	req.IsAjax()
//
//	req.URL("/users", map[string]any{"page": 2}, gohttp.Absolute())
//	req.CurrentURL(map[string]any{"page": 3}, []string{"sort"})
//
// # Response
//
// Response collects everything and writes it once with Send:
//
//	res := gohttp.NewResponse()
//	res.JSON(200, data)            // composite content is sent as JSON
//	res.Success(data)              // 200 {"data": ...}
//	res.Created(data)              // 201 {"data": ...}
//	res.NoContent()                // 204
//	res.SetContent("pong")         // text/plain
//	res.Redirect("/login", false)  // 302
//	err := res.Send(w)             // ErrAlreadySent on the second call
//
// # Errors
//
// Handlers return a *WebError to pick the status:
//
//	return gohttp.NotFound()             // 404 "Not Found"
//	return gohttp.BadRequest("bad id")   // 400
//	return gohttp.Unauthorized()         // 401
//
// # Client
//
//	client := gohttp.NewClient(30*time.Second, "https://api.example.com")
//	res, err := client.PostContent(ctx, "/users", gohttp.NewForm().AddField("name", "Ann"))
//	var user User
//	err = res.ContentJSON(&user)
package http

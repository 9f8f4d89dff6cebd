// Package app is an example application: a small users API.
package app

import (
	"strings"

	framework "github.com/km-arc/simple-structure/framework/app"
	"github.com/km-arc/simple-structure/framework/container"
	"github.com/km-arc/simple-structure/framework/ctxlog"
	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/http/validation"
	"github.com/km-arc/simple-structure/framework/routing"
	"github.com/km-arc/simple-structure/framework/tool"
)

// Define registers the users store and the application routes on b.
// seed holds alternating names and emails of initial users.
func Define(b *framework.Bootstrap, seed ...any) error {
	err := b.Define(func(c *container.Container) error {
		err := c.SetObject("users", container.Constructor(func(_ ...any) (any, error) {
			return NewUserStore(), nil
		}), nil)
		if err != nil {
			return err
		}
		if err := c.AddObjectMethodCall("users", "Seed", seedUsers, nil, seed...); err != nil {
			return err
		}
		// Resolved here, so every request container shares the store.
		_, err = c.Get("users")
		return err
	})
	if err != nil {
		return err
	}

	b.Get("/", welcome).
		Get("/users", listUsers).
		Post("/users", createUser).
		Get("/users/{id:int}", showUser).
		Delete("/users/{id:int}", deleteUser)

	b.DefineAllOptionsActions(allowMethods)
	b.DefineErrors(renderError)
	return nil
}

func welcome(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, _ ...any) error {
	res.Success(map[string]any{"message": "Welcome to SimpleStructure!"})
	return nil
}

// GET /users?page=2&pack=10
func listUsers(c *container.Container, res *gohttp.Response, req *gohttp.Request, _ ...any) error {
	store, err := container.Resolve[*UserStore](c, "users")
	if err != nil {
		return err
	}
	pages := tool.NewPagesHelper(req.Query.Int("page", 1), req.Query.Int("pack", 20))
	users, total := store.List(pages.Offset, pages.Limit)
	res.Success(pages.Paginator(users, total))
	return nil
}

// POST /users with a JSON or form body.
func createUser(c *container.Container, res *gohttp.Response, req *gohttp.Request, _ ...any) error {
	params := req.ContentParams().AddParent(req.Params)
	err := validation.Make(params, validation.Rules{
		"name":  "required|string|min:2|max:100",
		"email": "required|email",
	}).Validate()
	if err != nil {
		return err
	}

	store, err := container.Resolve[*UserStore](c, "users")
	if err != nil {
		return err
	}
	u := store.Create(params.String("name", ""), params.String("email", ""))
	ctxlog.FromContext(req.Context()).InfoContext(req.Context(), "user created", "id", u.ID)
	res.Created(u)
	return nil
}

// GET /users/{id:int}
func showUser(c *container.Container, res *gohttp.Response, _ *gohttp.Request, vars ...any) error {
	store, err := container.Resolve[*UserStore](c, "users")
	if err != nil {
		return err
	}
	u, ok := store.Find(vars[0].(int))
	if !ok {
		return gohttp.NotFound("User not found")
	}
	res.Success(u)
	return nil
}

// DELETE /users/{id:int} needs a bearer token.
func deleteUser(c *container.Container, res *gohttp.Response, req *gohttp.Request, vars ...any) error {
	if req.BearerToken() == "" {
		return gohttp.Unauthorized()
	}
	store, err := container.Resolve[*UserStore](c, "users")
	if err != nil {
		return err
	}
	if !store.Delete(vars[0].(int)) {
		return gohttp.NotFound("User not found")
	}
	res.NoContent()
	return nil
}

// allowMethods answers OPTIONS with the methods registered on the path.
func allowMethods(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, actions []*routing.Action) error {
	methods := []string{gohttp.MethodOptions.Upper()}
	for _, a := range actions {
		methods = append(methods, a.Method().Upper())
	}
	res.SetHeader("Allow", strings.Join(methods, ", ")).NoContent()
	return nil
}

// renderError writes {"error": message}, plus per-field messages of a
// failed validation.
func renderError(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, err *gohttp.WebError) error {
	body := map[string]any{"error": err.Message}
	if len(err.Fields) > 0 {
		body["errors"] = err.Fields
	}
	res.SetContent(body)
	return nil
}

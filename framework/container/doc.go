// Package container provides a small dependency-injection container built on
// named definitions.
//
// # Overview
//
// A Definition is a recipe: a Target that builds the value, the references
// of the entries it depends on, fixed params, and deferred method calls.
// Go has no constructor-by-name, so every target is an explicit function.
//
//	c := container.New()
//	c.SetParam("dsn", "postgres://localhost/app")
//	c.SetObject("db", container.Constructor(openDB), container.Refs("dsn"))
//	c.SetObject("users", container.Constructor(newUserRepo), container.Refs("db"), 50)
//
//	users, err := container.Resolve[*UserRepo](c, "users")
//
// Targets receive their resolved dependencies first, then the fixed params,
// then whatever was passed to Create.
//
// # Dependency references
//
//	container.Singleton("db")      // "db"    cached, built once
//	container.Instance("mailer")   // "i:mailer" fresh instance every time
//	container.DefinitionOf("job")  // "d:job" the *Definition itself
//
// Refs and ParseRef accept the string forms.
//
// # Get, Create and params
//
//	c.Get("db")            // cached value, built on first use
//	c.Create("mailer", to) // always a new instance, extra params appended
//	c.SetParam("db", fake) // caches a value directly
//
// Params and singletons share one cache. A cached name is never rebuilt:
// SetParam can always replace the value, while a SetObject registered after
// a value is cached has no effect on Get.
//
// # Deferred method calls
//
// Method calls run after the whole resolution pass that built their instance
// is complete, in the order instances were built. That lets two objects
// reference each other: one through its constructor, the other through a
// method call.
//
//	c.SetObject("a", container.Constructor(newA), container.Refs("b"))
//	c.SetObject("b", container.Constructor(newB), nil)
//	c.AddObjectMethodCall("b", "SetA", container.Method(func(b *B, args ...any) error {
//	    b.A = args[0].(*A)
//	    return nil
//	}), container.Refs("a"))
//
// Calls added after an instance exists apply to instances built later only.
// Only cached singletons and the value returned by Create are wired; an
// instance built for an "i:" reference gets no method calls.
// Get and Create called from inside a target join the pass already in
// flight, so their method calls wait for the same flush.
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailProvider{})
//	registry.Boot()
//
// Deferred providers register only when one of their names is first
// resolved.
package container

// Package zshort provides a Go client for the ZShort URL shortener API.
//
// Basic usage:
//
//	c := zshort.New() // uses https://zs.zevs.me
//	defer c.Close()
//
//	if err := c.Login(ctx, "alice", "secret"); err != nil {
//		log.Fatal(err)
//	}
//	short, err := c.Create(ctx, "https://example.com/very/long", zshort.CreateOptions{Slug: "ex"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(short.URL) // https://zs.zevs.me/ex
//
// # Errors
//
// Create, Edit and Delete return ErrNotAuthenticated before any request is
// sent when no token is set. Service failures come back as *HTTPError:
//
//	_, err := c.Get(ctx, "missing")
//	if zshort.IsNotFound(err) {
//		// no such slug
//	}
//
// Network failures are *TransportError and malformed payloads are
// *ValidationError.
//
// A duplicate slug on Create or Edit is not an error: the service answers 409
// with the existing record and the client returns it.
package zshort

// Package hanabi provides the account core of the hanabi personal drive: a minimal
// HTTP/1.x protocol engine with cookie sessions, CORS enforcement and a login and
// registration flow backed by a persisted credential table.
//
// # Key Components
//
//   - wire: byte-level request parser and response serializer
//   - cookie: Cookie header reader and Set-Cookie builder
//   - cors: simple and preflight cross-origin policy enforcement
//   - router: exact-path service lookup with per-method dispatch
//   - auth: the account service (identity, preflight, login, registration)
//   - database: credential store backends (SQLite, PostgreSQL, in-memory)
//   - server: TCP accept loop tying the pieces together
//
// # Error Taxonomy
//
// Every parsing and validation function returns an error wrapping one of the
// sentinels in this package. The server maps them to status codes:
//
//   - ErrMalformedInput: 400 Bad Request
//   - ErrPolicyDenied: 403 Forbidden
//   - ErrNotFound: 404 Not Found
//   - ErrTooLarge: 413 Content Too Large
//   - ErrRateLimited: 429 Too Many Requests
//   - ErrCredential, ErrInternal and anything else: 500 Internal Server Error
//
// # Example Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "data/main.db3",
//	    Tables: hanabi.DefaultTables(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	svc := auth.NewService(db.Store(), auth.DefaultConfig())
//	rt := router.New()
//	rt.Mount("/auth/user", router.ServiceAuth, svc)
//
//	srv := server.New(server.Config{Addr: ":9998"}, rt)
//	err = srv.ListenAndServe(ctx)
package hanabi

// Package clientcli talks to the hanabi account endpoint.
//
// A Client registers users, logs them in, reports the clearance of its current
// session and revokes it. The server hands out the session as a Secure tkn cookie;
// the Client records it itself so the session survives plain-http endpoints, and a
// SessionFile carries it from one process to the next.
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint: "http://localhost:9998",
//		Origin:   "http://localhost:3000",
//	})
//	if err != nil {
//		return err
//	}
//	if _, err := client.Login(ctx, "alice", "wonderland"); err != nil {
//		return err
//	}
//	id, err := client.Identity(ctx) // id.Name == "traveller"
//
// Sessions are keyed by endpoint:
//
//	sessions, _ := clientcli.LoadSessionFile(clientcli.DefaultSessionPath())
//	if s, ok := client.Session(); ok {
//		sessions.Set(client.Endpoint(), s)
//		_ = sessions.Save(clientcli.DefaultSessionPath())
//	}
//
// Profiles in ~/.hanabi/config.yaml name endpoints; resolve one with
// ConfigFile.GetProfile and ConfigFromProfile, then layer the environment on top
// with MergeConfig(ConfigFromProfile(p), ConfigFromEnv()).
package clientcli

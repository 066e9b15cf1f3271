/*
Package forumsdk provides a client SDK for the forum service HTTP API.

# Overview

The package is organized around two types:

  - SDKClient: unauthenticated operations (health probes, login, registration)
    and the factory for authenticated sessions
  - Session: operations that need a bearer token (profile, topics,
    subscriptions)

Create an SDKClient and authenticate to obtain a Session:

	client := forumsdk.NewSDKClient("https://forum.example.com")

	session, err := client.Register(ctx, forumsdk.RegisterRequest{
		Email:    "alice@x.com",
		Username: "alice",
		Password: "Abcd1234!",
	})

	// or, for an existing account (email or username)
	session, err = client.Login(ctx, "alice", "Abcd1234!")

Sessions carry the token they were created with. Tokens are stateless and
expire after the server's configured lifetime; call Refresh to swap in a
fresh one:

	if _, err := session.Refresh(ctx); err != nil {
		// the account no longer exists or the token has already expired
	}

Changing the account email changes the token subject, so UpdateProfile
replaces the session token whenever the server issues a new one.

# Topics and Subscriptions

	topics, err := session.ListTopics(ctx)
	summary, err := session.Subscribe(ctx, topics[0].ID)
	summary, err = session.Unsubscribe(ctx, topics[0].ID)
	mine, err := session.ListSubscribed(ctx)

Subscribe and Unsubscribe return the topic with its subscriber count as of
the committed change.

# Errors

Non-2xx responses are returned as *APIError carrying the HTTP status and the
stable error code (USER_NOT_FOUND, ALREADY_SUBSCRIBED, ...):

	_, err := session.Subscribe(ctx, id)
	if forumsdk.IsCode(err, forumsdk.CodeAlreadySubscribed) {
		// already there
	}
*/
package forumsdk

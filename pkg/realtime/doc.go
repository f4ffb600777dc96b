// Package realtime implements the client side of an OpenAI-style realtime
// speech endpoint: SDP offer/answer negotiation over HTTP, the in-band JSON
// control protocol carried on a WebRTC data channel, and a WebSocket
// transport variant for environments without a peer connection.
//
// A session is dialed with a short-lived secret issued elsewhere (see
// package broker); the secret authenticates exactly one negotiation call.
//
//	client := realtime.NewClient(realtime.WithBaseURL(url))
//	sess, err := client.DialWebRTC(ctx, cred.Secret, &realtime.DialConfig{
//	    Model: realtime.ModelRealtimeDefault,
//	})
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
// The dial returns once the remote answer is applied. Liveness is a
// separate, later signal: consume ConnectionStates() and treat
// StateConnected as the moment the call is actually up. Control messages
// may be sent once Opened() fires (the data channel is open).
//
//	<-sess.Opened()
//	sess.UpdateSession(&realtime.SessionConfig{Instructions: prompt})
//	sess.CreateResponse(nil)
//	for event, err := range sess.Events() {
//	    ...
//	}
package realtime

// Package event provides the publish/subscribe bus that carries match
// notifications from sequence matchers to the actions bound to them.
//
// Topics are dot separated ("code.konami"). Subscription patterns may use
// "*" for exactly one segment and "**" for zero or more trailing segments:
//
//	bus := event.NewBus()
//	bus.Start()
//	defer bus.Stop(ctx)
//
//	bus.SubscribeFunc("code.*", func(ctx context.Context, ev any) error {
//	    env := ev.(event.Envelope)
//	    log.Printf("matched %s", env.Topic)
//	    return nil
//	})
//
// Handlers run synchronously in the publisher's goroutine by default, in
// priority order. Subscriptions created with WithDeliveryMode(DeliveryAsync)
// are queued and run on a fixed pool of workers. A panicking handler is
// recovered and counted; it never takes down the publisher.
package event

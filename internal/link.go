package internal

// subscription links a reaction to one observable it depends on.
// Links are kept in the observable's subscriber list in registration order.
type subscription struct {
	dep *Observable
	sub *Reaction

	prevSub *subscription
	nextSub *subscription
}

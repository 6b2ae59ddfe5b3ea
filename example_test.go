package sigreact_test

import (
	"fmt"

	"github.com/AnatoleLucet/sigreact"
)

func ExampleNewReaction() {
	name := sigreact.NewObservable("world")

	var r *sigreact.Reaction[string]
	r = sigreact.NewReaction(func() string {
		return "hello " + name.Read()
	}, func() {
		v, _ := r.Run()
		fmt.Println(v)
	})

	v, _ := r.Run()
	fmt.Println(v)

	name.Write("gopher")
	r.Destroy()
	name.Write("nobody")

	// Output:
	// hello world
	// hello gopher
}

func ExampleReaction_CommitSubscriptions() {
	count := sigreact.NewObservable(0)

	r := sigreact.NewReaction(count.Read, func() {
		fmt.Println("invalidated")
	}, sigreact.WithAutocommit(false))

	r.Run()
	count.Write(1) // not subscribed yet

	r.Run()
	r.CommitSubscriptions()
	count.Write(2)

	// Output:
	// invalidated
}

func ExampleBatch() {
	first := sigreact.NewObservable("Ada")
	last := sigreact.NewObservable("Lovelace")

	r := sigreact.NewReaction(func() string {
		return first.Read() + " " + last.Read()
	}, func() {
		fmt.Println("invalidated")
	})
	r.Run()

	sigreact.Batch(func() {
		first.Write("Grace")
		last.Write("Hopper")
	})

	// Output:
	// invalidated
}

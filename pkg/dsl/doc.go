/*
Package dsl provides a fluent Go API for constructing canopy state definitions.

It is an alternative to YAML files for tests, embedded machines and
definitions generated at runtime.

Example usage:

	root := dsl.New("").Events("one_second", "countdown_complete", "button")
	root.Start("Crossing")

	crossing := root.State("Crossing").Entry("log", "crossing open")
	crossing.Start("Flowing")
	crossing.State("Flowing").On("button").Go("Countdown")
	crossing.State("Countdown").
		Entry("start_timer", "countdown_complete", "5s").
		On("one_second").When("is", "counting").Do("log", "tick").Go("Countdown").
		On("countdown_complete").Go("Flowing")

	m, err := canopy.New(root.Definition(), registry.New(), canopy.WithBuiltins())
*/
package dsl

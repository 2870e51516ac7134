// Package simulation computes the step response of the classroom water tank.
//
// Two first-order models are evaluated on the same time grid. The ideal
// model is the reference the students aim for; the plant model has a
// slightly lower gain, a slower time constant and Gaussian measurement
// noise, standing in for the real tank. The response is closed form, so a
// run is a single pass over the grid with no integration step.
//
// Usage:
//
//	engine := simulation.NewEngine(simulation.DefaultConfig(), simulation.NewSeededNoise(42))
//	result := engine.Run(models.DefaultExperimentParams())
//	fmt.Println(result.MeanAbsoluteError, result.PeakLevel)
package simulation

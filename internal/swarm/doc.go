// Package swarm provides concrete behaviors that run on the world kernel:
// fireflies that synchronise by light, ants that coordinate through
// pheromone trails, Game of Life cells, and plain mortal agents.
//
// Every behavior talks to others only through messages; none of them holds
// a reference to the World or to another entity.
package swarm

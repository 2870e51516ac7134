//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals forwards Ctrl+C to ch.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

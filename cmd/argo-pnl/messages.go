package main

import "github.com/rxtech-lab/argo-pnl/internal/types"

// PositionsLoadedMsg carries the folded positions once they are read.
type PositionsLoadedMsg struct {
	Positions []types.Position
}

// LoadErrorMsg indicates the positions could not be read.
type LoadErrorMsg struct {
	Err error
}

package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/mapper"
	"github.com/tangle-rdb/ingester/internal/transport"
)

// Ingest resolves each incoming frame's (self, trunk, branch) triplet,
// composes the solidity bitmask, writes the row, and fans out to the
// approve and solidate channels. See §4.5.
type Ingest struct {
	Tx      *mapper.TransactionMapper
	Address *mapper.AddressMapper
	Bundle  *mapper.BundleMapper

	MilestoneAddress string
	MilestoneTag     string // the 27-trit tag a milestone's own tag must equal to start fully solid

	RetryInterval time.Duration

	Events EventSink
	Log    *zap.Logger

	ApproveCh   chan<- []uint64
	SolidateCh  chan<- []SolidateEntry
	CalculateCh chan<- uint64
}

// Run consumes frames until ctx is canceled or frames is closed, retrying
// Locked outcomes from a local queue on RetryInterval so the retry queue
// drains independently of new arrivals.
func (w *Ingest) Run(ctx context.Context, frames <-chan transport.Frame) {
	var retryQueue []transport.Frame
	ticker := time.NewTicker(w.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := w.process(ctx, frame); err == errs.ErrLocked {
				retryQueue = append(retryQueue, frame)
			} else if err != nil {
				w.Log.Warn("dropping frame", zap.String("hash", frame.Hash), zap.Error(err))
			}
		case <-ticker.C:
			if len(retryQueue) == 0 {
				continue
			}
			pending := retryQueue
			retryQueue = nil
			for _, frame := range pending {
				if err := w.process(ctx, frame); err == errs.ErrLocked {
					retryQueue = append(retryQueue, frame)
				} else if err != nil {
					w.Log.Warn("dropping frame", zap.String("hash", frame.Hash), zap.Error(err))
				}
			}
		}
	}
}

// process runs the ten-step algorithm of §4.5 for one frame.
func (w *Ingest) process(ctx context.Context, f transport.Frame) error {
	idAddress, err := w.Address.FetchOrInsert(ctx, f.AddressHash)
	if err != nil {
		return err
	}

	idBundle, err := w.Bundle.FetchOrInsert(ctx, f.BundleHash, f.LastIdx+1, nowMillis())
	if err != nil {
		return err
	}

	current, trunk, branch, err := w.Tx.FetchTriplet(ctx, f.Hash, f.TrunkHash, f.BranchHash)
	if err != nil {
		return err
	}
	defer func() {
		current.Unlock()
		trunk.Unlock()
		branch.Unlock()
	}()

	// Idempotence: a cached current record with both parent ids already
	// resolved has already been fully ingested once; nothing left to do.
	if current.IDTrunk() != 0 && current.IDBranch() != 0 {
		return nil
	}

	isMilestone := f.IsMilestone(w.MilestoneAddress)
	solid := uint8(0)
	if isMilestone && f.Tag == w.MilestoneTag {
		solid = 0b11
	}
	if trunk.Solid() == 0b11 {
		solid |= 0b10
	}
	if branch.Solid() == 0b11 {
		solid |= 0b01
	}

	height := int32(0)
	if solid != 0b11 && trunk.Solid() == 0b11 {
		height = trunk.Height() + 1
	}

	current.PopulateFromMessage(idAddress.ID(), idBundle.ID(), f.Tag, f.Value, f.Timestamp, f.CurrentIdx, f.LastIdx, isMilestone)
	current.SetIDTrunk(trunk.ID())
	current.SetIDBranch(branch.ID())
	current.SetHeight(height)
	current.SetSolid(solid)

	w.Tx.LinkParents(current.ID(), trunk.ID(), branch.ID())

	w.Events.Emit(EventNewTransaction, 1)
	if solid != 0b11 {
		w.Events.Emit(EventUnsolid, 1)
	}

	if isMilestone {
		w.Events.Emit(EventMilestone, 1)
		ids := dedupeNonZero(trunk.ID(), branch.ID())
		if len(ids) > 0 {
			select {
			case w.ApproveCh <- ids:
			case <-ctx.Done():
			}
		}
		select {
		case w.CalculateCh <- current.ID():
		case <-ctx.Done():
		}
	}

	if solid == 0b11 {
		select {
		case w.SolidateCh <- []SolidateEntry{{ID: current.ID(), Height: heightPtr(height)}}:
		case <-ctx.Done():
		}
	}

	return nil
}

func dedupeNonZero(ids ...uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func heightPtr(h int32) *int32 { return &h }

func nowMillis() float64 {
	return float64(time.Now().UnixMilli())
}

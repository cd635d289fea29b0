package gameserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/game/fire"
	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
)

// CommandHandler accepts commands over HTTP:
//
//	GET  /firearms                   one "<id> <def id> <mechanism>" line per firearm
//	POST /firearms/{id}/{command}    queue a command; arguments are query parameters
//
// Arguments: set_bolt?open=true, insert?cell=live&caliber=9mm,
// insert_magazine?count=10&max=10&caliber=9mm&type=pistol, recharge?amount=5.
type CommandHandler struct {
	sim    *Simulation
	logger *zap.Logger
	mux    *http.ServeMux
}

// NewCommandHandler creates a CommandHandler submitting to sim.
//
// Precondition: sim and logger must be non-nil.
func NewCommandHandler(sim *Simulation, logger *zap.Logger) *CommandHandler {
	if sim == nil || logger == nil {
		panic("gameserver.NewCommandHandler: sim and logger must not be nil")
	}
	h := &CommandHandler{sim: sim, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /firearms", h.list)
	h.mux.HandleFunc("POST /firearms/{id}/{command}", h.submit)
	return h
}

// ServeHTTP implements http.Handler.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *CommandHandler) list(w http.ResponseWriter, _ *http.Request) {
	armory := h.sim.Armory()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, id := range armory.IDs() {
		f, ok := armory.Get(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", id, f.Def.ID, f.Def.Mechanism)
	}
}

func (h *CommandHandler) submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid firearm id", http.StatusBadRequest)
		return
	}
	cmd, err := ParseCommand(r.PathValue("command"), r.URL.Query().Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch err := h.sim.Submit(r.Context(), id, cmd); {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, ErrUnknownFirearm):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrQueueFull):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.Warn("submit failed", zap.Stringer("firearm", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ParseCommand builds a Command from its snake_case name and an argument
// lookup returning "" for missing arguments.
func ParseCommand(name string, arg func(string) string) (Command, error) {
	switch name {
	case "fire":
		return Fire{}, nil
	case "cycle_manual":
		return CycleManual{}, nil
	case "set_bolt":
		open, err := strconv.ParseBool(arg("open"))
		if err != nil {
			return nil, fmt.Errorf("set_bolt: open: %w", err)
		}
		return SetBolt{Open: open}, nil
	case "spin":
		return Spin{}, nil
	case "insert":
		cell := firearm.CellLive
		switch arg("cell") {
		case "", "live":
		case "spent":
			cell = firearm.CellSpent
		default:
			return nil, fmt.Errorf("insert: cell must be live or spent, got %q", arg("cell"))
		}
		return Insert{Round: fire.InsertRound{Cell: cell, Caliber: firearm.Caliber(arg("caliber"))}}, nil
	case "eject_all":
		return EjectAll{}, nil
	case "insert_magazine":
		count, err := parseUint32(arg("count"))
		if err != nil {
			return nil, fmt.Errorf("insert_magazine: count: %w", err)
		}
		max, err := parseUint32(arg("max"))
		if err != nil {
			return nil, fmt.Errorf("insert_magazine: max: %w", err)
		}
		return InsertMagazine{
			Count:   count,
			Max:     max,
			Caliber: firearm.Caliber(arg("caliber")),
			Type:    firearm.MagazineType(arg("type")),
		}, nil
	case "remove_magazine":
		return RemoveMagazine{}, nil
	case "recharge":
		amount, err := parseUint32(arg("amount"))
		if err != nil {
			return nil, fmt.Errorf("recharge: amount: %w", err)
		}
		return Recharge{Amount: amount}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

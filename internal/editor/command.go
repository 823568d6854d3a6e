package editor

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command")

// Exec runs one console command line and writes its output to w.
//
//	types                  list component types
//	counts                 entities per component type
//	entities               list live entities
//	inspect <e>            show an entity's components
//	add <e> <component>    attach a default component
//	rm <e> <component>     detach a component
//	pause                  toggle simulation pause (rendering keeps running)
func (ed *Editor) Exec(line string, w io.Writer) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(w, "types | counts | entities | inspect <e> | add <e> <c> | rm <e> <c> | pause")
	case "types":
		for _, p := range ed.Picker() {
			fmt.Fprintf(w, "%3d %-12s %016x\n", p.Type, p.Name, p.Tag)
		}
	case "counts":
		counts := ed.Counts()
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(w, "%-12s %d\n", n, counts[n])
		}
	case "entities":
		for _, e := range ed.c.AllEntities() {
			n, _ := ed.c.EntityComponentCount(e)
			fmt.Fprintf(w, "%s (%d components)\n", e, n)
		}
	case "inspect":
		if len(args) != 1 {
			return fmt.Errorf("usage: inspect <entity>")
		}
		e, err := ParseEntity(args[0])
		if err != nil {
			return err
		}
		views, err := ed.Inspect(e)
		if err != nil {
			return err
		}
		for _, v := range views {
			fmt.Fprintf(w, "%s %+v\n", v.Name, v.Value)
		}
	case "add", "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <entity> <component>", cmd)
		}
		e, err := ParseEntity(args[0])
		if err != nil {
			return err
		}
		if cmd == "add" {
			err = ed.AddComponent(e, args[1])
		} else {
			err = ed.RemoveComponent(e, args[1])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "ok\n")
	case "pause":
		paused, err := ed.TogglePause()
		if err != nil {
			return err
		}
		if paused {
			fmt.Fprintln(w, "paused")
		} else {
			fmt.Fprintln(w, "resumed")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return nil
}

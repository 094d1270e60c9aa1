//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/player"
)

var p *player.Player

func main() {
	p = player.New(nil)

	motionEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	motionEngine.Set("loadScript", js.FuncOf(loadScript))
	motionEngine.Set("loadSampleScript", js.FuncOf(loadSampleScript))
	motionEngine.Set("setPlayhead", js.FuncOf(setPlayhead))
	motionEngine.Set("play", js.FuncOf(play))
	motionEngine.Set("pause", js.FuncOf(pause))
	motionEngine.Set("togglePlay", js.FuncOf(togglePlay))
	motionEngine.Set("setSelection", js.FuncOf(setSelection))
	motionEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	motionEngine.Set("render", js.FuncOf(render))
	motionEngine.Set("hitTest", js.FuncOf(hitTest))
	motionEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	motionEngine.Set("getScript", js.FuncOf(getScript))
	motionEngine.Set("getFrame", js.FuncOf(getFrame))
	motionEngine.Set("isPlaying", js.FuncOf(isPlaying))
	motionEngine.Set("getFPS", js.FuncOf(getFPS))
	motionEngine.Set("getTotalFrames", js.FuncOf(getTotalFrames))

	js.Global().Set("motionEngine", motionEngine)
	js.Global().Set("motionWasmReady", js.ValueOf(true))

	select {}
}

func result(err error) any {
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}
	return js.ValueOf(map[string]any{"ok": true, "frames": p.TotalFrames()})
}

// --- Command Handlers ---

func loadScript(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing script JSON"})
	}
	return result(p.LoadJSON(context.Background(), []byte(args[0].String())))
}

func loadSampleScript(this js.Value, args []js.Value) any {
	return result(p.Load(context.Background(), document.NewSampleScript()))
}

func setPlayhead(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	p.SetPlayhead(args[0].Int())
	return nil
}

func play(this js.Value, args []js.Value) any {
	p.Play()
	return nil
}

func pause(this js.Value, args []js.Value) any {
	p.Pause()
	return nil
}

func togglePlay(this js.Value, args []js.Value) any {
	p.TogglePlay()
	return nil
}

func setSelection(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		p.SetSelection(nil)
		return nil
	}
	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	p.SetSelection(ids)
	return nil
}

func tick(this js.Value, args []js.Value) any {
	return js.ValueOf(p.Tick())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(p.Render())
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(p.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	r, ok := p.SelectionBounds()
	if !ok {
		return js.ValueOf("{}")
	}
	data, _ := json.Marshal(r)
	return js.ValueOf(string(data))
}

func getScript(this js.Value, args []js.Value) any {
	return js.ValueOf(p.ScriptJSON())
}

func getFrame(this js.Value, args []js.Value) any {
	return js.ValueOf(p.Frame())
}

func isPlaying(this js.Value, args []js.Value) any {
	return js.ValueOf(p.IsPlaying())
}

func getFPS(this js.Value, args []js.Value) any {
	return js.ValueOf(p.FPS())
}

func getTotalFrames(this js.Value, args []js.Value) any {
	return js.ValueOf(p.TotalFrames())
}

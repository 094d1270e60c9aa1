package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixScript  = "script"
	PrefixSession = "sess"
	PrefixRender  = "render"
	PrefixAsset   = "asset"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewScriptID() string  { return New(PrefixScript) }
func NewSessionID() string { return New(PrefixSession) }
func NewRenderID() string  { return New(PrefixRender) }
func NewAssetID() string   { return New(PrefixAsset) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

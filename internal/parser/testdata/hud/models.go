package hud

// Localizer resolves keys to text streams.
type Localizer interface {
	Localize(key string) any
}

// HudModel backs the heads-up display.
//
//bind:model
//bind:call Restart forward primitive=Restart flags=PrivateCommand
//bind:observe Lives type=int flags=PublicReactiveProperty|PrivateReactiveProperty
type HudModel struct {
	HudModelGenerated

	Slots []*SlotModel
}

type SlotModel struct {
	ID string
}

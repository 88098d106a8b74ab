package hud

//bind:view HudModel
type HudView struct {
	HudViewBindings

	Score  *Label      `bind:"observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty"`
	Bonus  *Label      `bind:"observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty delay=3 frames"`
	Labels []*Label    `bind:"observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty"`
	Dead   *Image      `bind:"observe Alive as=GameObjectActivity type=bool invert"`
	Tint   *Image      `bind:"observe Tint as=Color type=Color invert"`
	Play   *Button     `bind:"call primitive=Play flags=PrivateCommand debounce=250"`
	Quit   *Button     `bind:"call Quit vm"`
	Title  *Label      `bind:"localize hud.title"`
	Hint   *Input      `bind:"localize provider=HintKey placeholder nullcheck"`
	Slots  []*SlotView `bind:"subviews match=Index"`
	Stats  *StatsView  `bind:"subview reuse"`
	Broken *Label      `bind:"observe Score as=Glow"`
	Plain  *Label      `bind:"-"`

	HintKey string
}

//bind:subscribe Died flags=PublicObservable|PrivateCommand
func (v *HudView) OnDied(Unit) {}

//bind:subscribe Score type=int flags=PublicObservable|PrivateReactiveProperty filter='value > 100'
func (v *HudView) OnHighScore(int) {}

//bind:view HudModel
type MiniHudView struct {
	MiniHudViewBindings

	Score *Label `bind:"observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty"`
	Title *Label `bind:"localize hud.title"`
}

//bind:view Ghost
type GhostView struct {
	Name *Label `bind:"observe Name as=Text type=string flags=PublicObservable|PrivateReactiveProperty"`
}

//bind:view HudModel
type DebugView struct {
	Fps *Label `bind:"observe Fps as=Text type=int flags=PublicObservable|PrivateReactiveProperty"`
}

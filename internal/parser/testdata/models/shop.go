package models

//bind:model imports=time
//bind:observe Cooldown type=time.Duration flags=PublicObservable|PrivateReactiveProperty
type ShopModel struct {
	ShopModelGenerated
}

type Item struct {
	Name string
}

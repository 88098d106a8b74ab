package shop

import "github.com/acme/game/models"

//bind:view models.ShopModel
type ShopView struct {
	ShopViewBindings

	Price *Label  `bind:"observe Price as=Text type=int flags=PublicObservable|PrivateReactiveProperty"`
	Gold  *Label  `bind:"observe Gold as=Text type=int flags=PrivateReactiveProperty"`
	Buy   *Button `bind:"call primitive=Buy flags=PrivateCommand"`
	Sell  *Button `bind:"call SellSelected vm"`
}

//bind:subscribe Bought type=Item flags=PublicObservable|PrivateCommand
func (v *ShopView) OnBought(models.Item) {}

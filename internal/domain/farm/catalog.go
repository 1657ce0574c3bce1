package farm

import (
	"sort"
	"time"
)

// MaxFields is the number of plots on a farm; valid indexes are 0..MaxFields-1.
const MaxFields = 22

type ItemKind string

const (
	KindSeed    ItemKind = "seed"
	KindCrop    ItemKind = "crop"
	KindTool    ItemKind = "tool"
	KindFood    ItemKind = "food"
	KindLimited ItemKind = "limited"
)

type Item struct {
	Name      ItemName
	Kind      ItemKind
	Price     Quantity
	SellPrice Quantity
	Requires  ItemName
	Disabled  bool
	Crop      CropName
}

// Purchasable reports whether the item is sold on the market.
func (i Item) Purchasable() bool {
	return i.Kind == KindSeed || i.Kind == KindTool || i.Kind == KindFood
}

type Crop struct {
	Name           CropName
	Seed           ItemName
	HarvestSeconds int
	SellPrice      Quantity
}

func (c Crop) ReadyAt(plantedAt time.Time) time.Time {
	return plantedAt.Add(time.Duration(c.HarvestSeconds) * time.Second)
}

type cropDef struct {
	name      CropName
	seedPrice string
	sellPrice string
	seconds   int
	requires  ItemName
	disabled  bool
}

var cropDefs = []cropDef{
	{name: "Sunflower", seedPrice: "0.01", sellPrice: "0.02", seconds: 60},
	{name: "Potato", seedPrice: "0.1", sellPrice: "0.14", seconds: 5 * 60},
	{name: "Pumpkin", seedPrice: "0.2", sellPrice: "0.4", seconds: 30 * 60},
	{name: "Carrot", seedPrice: "0.5", sellPrice: "0.8", seconds: 60 * 60},
	{name: "Cabbage", seedPrice: "1", sellPrice: "1.5", seconds: 2 * 60 * 60},
	{name: "Beetroot", seedPrice: "2", sellPrice: "2.8", seconds: 4 * 60 * 60},
	{name: "Cauliflower", seedPrice: "3", sellPrice: "4.25", seconds: 8 * 60 * 60},
	{name: "Parsnip", seedPrice: "5", sellPrice: "6.5", seconds: 12 * 60 * 60, requires: "Pickaxe"},
	{name: "Radish", seedPrice: "7", sellPrice: "9.5", seconds: 24 * 60 * 60, requires: "Pickaxe"},
	{name: "Wheat", seedPrice: "0.1", sellPrice: "0.14", seconds: 24 * 60 * 60, disabled: true},
}

var (
	items = map[ItemName]Item{}
	crops = map[CropName]Crop{}
)

func init() {
	for _, def := range cropDefs {
		seed := ItemName(string(def.name) + " Seed")
		crops[def.name] = Crop{
			Name:           def.name,
			Seed:           seed,
			HarvestSeconds: def.seconds,
			SellPrice:      MustQuantity(def.sellPrice),
		}
		items[seed] = Item{
			Name:     seed,
			Kind:     KindSeed,
			Price:    MustQuantity(def.seedPrice),
			Requires: def.requires,
			Disabled: def.disabled,
			Crop:     def.name,
		}
		items[ItemName(def.name)] = Item{
			Name:      ItemName(def.name),
			Kind:      KindCrop,
			SellPrice: MustQuantity(def.sellPrice),
			Crop:      def.name,
		}
	}

	addItem(Item{Name: "Axe", Kind: KindTool, Price: MustQuantity("1")})
	addItem(Item{Name: "Pickaxe", Kind: KindTool, Price: MustQuantity("1")})
	addItem(Item{Name: "Stone Pickaxe", Kind: KindTool, Price: MustQuantity("2"), Requires: "Pickaxe"})
	addItem(Item{Name: "Iron Pickaxe", Kind: KindTool, Price: MustQuantity("10"), Requires: "Stone Pickaxe"})

	addItem(Item{Name: "Pumpkin Soup", Kind: KindFood, Price: MustQuantity("3"), Requires: "Pumpkin"})
	addItem(Item{Name: "Sauerkraut", Kind: KindFood, Price: MustQuantity("2.5"), Requires: "Cabbage"})
	addItem(Item{Name: "Roasted Cauliflower", Kind: KindFood, Price: MustQuantity("3.5"), Requires: "Cauliflower"})

	for _, name := range []ItemName{
		"Sunflower Statue", "Potato Statue", "Christmas Tree", "Scarecrow",
		"Farm Cat", "Farm Dog", "Gnome", "Chicken Coop", "Gold Egg",
		"Sunflower Rock", "Sunflower Tombstone",
	} {
		addItem(Item{Name: name, Kind: KindLimited})
	}
}

func addItem(item Item) {
	items[item.Name] = item
}

func LookupItem(name ItemName) (Item, bool) {
	item, ok := items[name]
	return item, ok
}

func LookupCrop(name CropName) (Crop, bool) {
	crop, ok := crops[name]
	return crop, ok
}

// CatalogItems lists every catalog item ordered by name.
func CatalogItems() []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// InitialStock is the market stock of a fresh or freshly synced farm.
func InitialStock() Inventory {
	return Inventory{
		"Sunflower Seed":   NewQuantity(1000),
		"Potato Seed":      NewQuantity(300),
		"Pumpkin Seed":     NewQuantity(200),
		"Carrot Seed":      NewQuantity(100),
		"Cabbage Seed":     NewQuantity(90),
		"Beetroot Seed":    NewQuantity(80),
		"Cauliflower Seed": NewQuantity(70),
		"Parsnip Seed":     NewQuantity(50),
		"Radish Seed":      NewQuantity(40),
		"Wheat Seed":       NewQuantity(0),

		"Axe":           NewQuantity(50),
		"Pickaxe":       NewQuantity(50),
		"Stone Pickaxe": NewQuantity(50),
		"Iron Pickaxe":  NewQuantity(50),

		"Pumpkin Soup":        NewQuantity(1),
		"Sauerkraut":          NewQuantity(1),
		"Roasted Cauliflower": NewQuantity(1),
	}
}

// InitialFarm is the starting snapshot for sessions without a remote identity.
func InitialFarm() Snapshot {
	epoch := time.Unix(0, 0).UTC()
	return Snapshot{
		ID:      1,
		Balance: MustQuantity("2.99999999999999999"),
		Fields: Fields{
			0:  {Crop: "Sunflower", PlantedAt: epoch},
			1:  {Crop: "Sunflower", PlantedAt: epoch},
			2:  {Crop: "Sunflower", PlantedAt: epoch},
			5:  {Crop: "Carrot", PlantedAt: epoch},
			6:  {Crop: "Cabbage", PlantedAt: epoch},
			10: {Crop: "Cauliflower", PlantedAt: epoch},
			11: {Crop: "Beetroot", PlantedAt: epoch},
			16: {Crop: "Parsnip", PlantedAt: epoch},
			17: {Crop: "Radish", PlantedAt: epoch},
		},
		Inventory: Inventory{
			"Sunflower Seed":      NewQuantity(3),
			"Pumpkin Soup":        NewQuantity(1),
			"Sunflower Tombstone": NewQuantity(1),
			"Sunflower Rock":      NewQuantity(1),
			"Chicken Coop":        NewQuantity(1),
			"Carrot Seed":         NewQuantity(2),
			"Cabbage Seed":        NewQuantity(3),
			"Beetroot Seed":       NewQuantity(2),
			"Cauliflower Seed":    NewQuantity(100),
			"Sunflower Statue":    NewQuantity(1),
			"Christmas Tree":      NewQuantity(1),
			"Scarecrow":           NewQuantity(1),
			"Farm Cat":            NewQuantity(1),
			"Farm Dog":            NewQuantity(1),
			"Gnome":               NewQuantity(1),
			"Gold Egg":            NewQuantity(1),
			"Roasted Cauliflower": NewQuantity(2),
		},
		Stock: InitialStock(),
	}
}

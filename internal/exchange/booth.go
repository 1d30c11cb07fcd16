package exchange

import (
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// booths are the Dhaka exchange points; coordinates are [lng, lat]
var booths = []sdk.Booth{
	{
		Id:          1,
		Name:        "Mirpur-2 Xchange Booth",
		Location:    "Mirpur-2, Dhaka",
		Coordinates: []float64{90.3645, 23.8067},
		Hours:       "9:00 AM - 8:00 PM",
		Contact:     "+880 XXXX-XXXXXX",
		Distance:    "1.2 km",
	},
	{
		Id:          2,
		Name:        "Dhanmondi Xchange Booth",
		Location:    "Dhanmondi 27, Dhaka",
		Coordinates: []float64{90.3715, 23.7465},
		Hours:       "9:00 AM - 8:00 PM",
		Contact:     "+880 XXXX-XXXXXX",
		Distance:    "3.5 km",
	},
	{
		Id:          3,
		Name:        "Uttara Xchange Booth",
		Location:    "Uttara Sector 7, Dhaka",
		Coordinates: []float64{90.3904, 23.8759},
		Hours:       "9:00 AM - 8:00 PM",
		Contact:     "+880 XXXX-XXXXXX",
		Distance:    "8.2 km",
	},
	{
		Id:          4,
		Name:        "Gulshan Xchange Booth",
		Location:    "Gulshan 1, Dhaka",
		Coordinates: []float64{90.4160, 23.7940},
		Hours:       "10:00 AM - 9:00 PM",
		Contact:     "+880 XXXX-XXXXXX",
		Distance:    "5.7 km",
	},
}

// Booths returns copies of every booth in display order
func Booths() []*sdk.Booth {
	out := make([]*sdk.Booth, 0, len(booths))
	for i := range booths {
		out = append(out, cloneBooth(&booths[i]))
	}
	return out
}

// BoothById looks a booth up by its id
func BoothById(id int) (*sdk.Booth, error) {
	for i := range booths {
		if booths[i].Id == id {
			return cloneBooth(&booths[i]), nil
		}
	}
	return nil, errcode.ErrUnknownBooth
}

func cloneBooth(b *sdk.Booth) *sdk.Booth {
	cp := *b
	cp.Coordinates = append([]float64(nil), b.Coordinates...)
	return &cp
}

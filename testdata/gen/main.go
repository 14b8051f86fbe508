// Command gen writes testdata/cars.parquet, a sample dataset for trying
// queries by hand.
package main

import (
	"log"
	"os"

	parquet "github.com/parquet-go/parquet-go"
)

type Car struct {
	Model string  `parquet:"model"`
	MPG   float64 `parquet:"mpg"`
	Cyl   int32   `parquet:"cyl"`
	HP    int32   `parquet:"hp"`
	WT    float64 `parquet:"wt"`
	AM    int32   `parquet:"am"`
	Gear  int32   `parquet:"gear"`
}

func main() {
	f, err := os.Create("testdata/cars.parquet")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := parquet.NewWriter(f)

	cars := []Car{
		{"Mazda RX4", 21.0, 6, 110, 2.620, 1, 4},
		{"Mazda RX4 Wag", 21.0, 6, 110, 2.875, 1, 4},
		{"Datsun 710", 22.8, 4, 93, 2.320, 1, 4},
		{"Hornet 4 Drive", 21.4, 6, 110, 3.215, 0, 3},
		{"Hornet Sportabout", 18.7, 8, 175, 3.440, 0, 3},
		{"Valiant", 18.1, 6, 105, 3.460, 0, 3},
		{"Duster 360", 14.3, 8, 245, 3.570, 0, 3},
		{"Merc 240D", 24.4, 4, 62, 3.190, 0, 4},
		{"Merc 230", 22.8, 4, 95, 3.150, 0, 4},
		{"Merc 280", 19.2, 6, 123, 3.440, 0, 4},
		{"Fiat 128", 32.4, 4, 66, 2.200, 1, 4},
		{"Toyota Corolla", 33.9, 4, 65, 1.835, 1, 4},
		{"Ford Pantera L", 15.8, 8, 264, 3.170, 1, 5},
		{"Ferrari Dino", 19.7, 6, 175, 2.770, 1, 5},
		{"Maserati Bora", 15.0, 8, 335, 3.570, 1, 5},
		{"Volvo 142E", 21.4, 4, 109, 2.780, 1, 4},
	}

	for _, c := range cars {
		if err := w.Write(c); err != nil {
			log.Fatal(err)
		}
	}

	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
}

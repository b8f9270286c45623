package tether

import "testing"

func TestTask(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		size    int
	}{
		{"serial", 1, 10},
		{"zero workers", 0, 10},
		{"uneven chunks", 3, 10},
		{"more workers than data", 8, 3},
		{"empty data", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]*int, tt.size)
			for i := range data {
				value := i
				data[i] = &value
			}

			task(tt.workers, data, func(d *int) {
				*d = *d * *d
			})

			for i, d := range data {
				if *d != i*i {
					t.Errorf("data[%d] = %d, want %d", i, *d, i*i)
				}
			}
		})
	}
}

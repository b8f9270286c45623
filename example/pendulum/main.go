package main

import (
	_ "embed"
	"fmt"
	"log"
	"os"

	"github.com/akmonengine/tether"
	"github.com/akmonengine/tether/constraint"
	"github.com/akmonengine/tether/scene"
	"github.com/go-gl/mathgl/mgl64"
)

//go:embed scene.yaml
var sceneYAML []byte

func main() {
	s, err := scene.Load(sceneYAML)
	if err != nil {
		log.Fatal(err)
	}

	world := s.World
	world.Logger = log.New(os.Stderr, "", log.LstdFlags)

	names := make(map[constraint.Constraint]string, len(s.Limits))
	for name, limit := range s.Limits {
		names[limit] = name
	}
	world.Events.Subscribe(tether.LIMIT_ENTER, func(event tether.Event) {
		fmt.Printf("  >> %s reached its bound\n", names[event.(tether.LimitEnterEvent).Limit])
	})
	world.Events.Subscribe(tether.LIMIT_EXIT, func(event tether.Event) {
		fmt.Printf("  << %s back in range\n", names[event.(tether.LimitExitEvent).Limit])
	})

	rope := s.Limits["rope"].(*constraint.DistanceLimit)
	slot := s.Limits["slot"].(*constraint.AxisOffsetLimit)
	cone := s.Limits["cone"].(*constraint.SwingAngleLimit)

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 180

	for step := 0; step < maxSteps; step++ {
		world.Step(dt)

		if step%10 != 0 {
			continue
		}

		fmt.Printf("--- STEP %d ---\n", step+1)
		fmt.Printf("  rope: distance=%.4f impulse=%.4f error=%.5f\n", rope.CurrentDistance(), rope.Impulse(), rope.PositionError())
		fmt.Printf("  slot: offset=%.4f impulse=%.4f error=%.5f\n", slot.CurrentOffset(), slot.Impulse(), slot.PositionError())
		fmt.Printf("  cone: angle=%.2f° impulse=%.4f\n", mgl64.RadToDeg(cone.CurrentAngle()), cone.Impulse())
	}
}

// Command simpleScene runs a headless scene of boxes and walls and logs the
// bodies and the collision events.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/BurntSushi/toml"
	dynamics "github.com/danepowell/openhaptics-sub000"
	"github.com/danepowell/openhaptics-sub000/actor"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type boxDef struct {
	Position        mgl64.Vec3 `toml:"position"`
	Size            mgl64.Vec3 `toml:"size"`
	Velocity        mgl64.Vec3 `toml:"velocity"`
	AngularVelocity mgl64.Vec3 `toml:"angular-velocity"`
	// Axis and Angle (degrees) give the initial orientation
	Axis  mgl64.Vec3 `toml:"axis"`
	Angle float64    `toml:"angle"`
}

type wallDef struct {
	Corners [4]mgl64.Vec3 `toml:"corners"`
}

type scene struct {
	Boxes []boxDef  `toml:"box"`
	Walls []wallDef `toml:"wall"`
}

// defaultScene drops a tilted box on a floor.
func defaultScene() scene {
	return scene{
		Walls: []wallDef{{Corners: [4]mgl64.Vec3{
			{-10, 0, -10}, {-10, 0, 10}, {10, 0, 10}, {10, 0, -10},
		}}},
		Boxes: []boxDef{{
			Position: mgl64.Vec3{0, 3, 0},
			Size:     mgl64.Vec3{1, 1, 1},
			Axis:     mgl64.Vec3{0, 0, 1},
			Angle:    30,
		}},
	}
}

func readScene(path string) (scene, error) {
	if path == "" {
		return defaultScene(), nil
	}

	var s scene
	meta, err := toml.DecodeFile(path, &s)
	if err != nil {
		return scene{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return scene{}, fmt.Errorf("unknown scene keys: %v", undecoded)
	}
	return s, nil
}

func (s scene) build(world *dynamics.World) error {
	for _, wall := range s.Walls {
		c := wall.Corners
		if _, err := world.AddWall(c[0], c[1], c[2], c[3]); err != nil {
			return err
		}
	}
	for _, box := range s.Boxes {
		orientation := mgl64.QuatIdent()
		if box.Angle != 0 && box.Axis.Len() > 0 {
			orientation = mgl64.QuatRotate(mgl64.DegToRad(box.Angle), box.Axis.Normalize())
		}
		if _, err := world.AddBox(box.Position, orientation, box.Size, box.Velocity, box.AngularVelocity); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	var (
		debug      = flag.Bool("debug", false, "development logging")
		configPath = flag.String("config", "", "world config file (TOML)")
		scenePath  = flag.String("scene", "", "scene file (TOML) with [[box]] and [[wall]] tables")
		steps      = flag.Int("steps", 300, "number of steps")
		dt         = flag.Float64("dt", 1.0/60.0, "step length in seconds")
		realtime   = flag.Bool("realtime", false, "pace steps to wall-clock time")
		every      = flag.Int("log-every", 30, "log body snapshots every n steps")
	)
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, *configPath, *scenePath, *steps, *dt, *realtime, *every); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, configPath, scenePath string, steps int, dt float64, realtime bool, every int) error {
	if dt <= 0 {
		return fmt.Errorf("dt %g must be positive", dt)
	}

	config := dynamics.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = dynamics.LoadConfig(configPath); err != nil {
			return fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	s, err := readScene(scenePath)
	if err != nil {
		return fmt.Errorf("scene %s: %w", scenePath, err)
	}

	world, err := dynamics.NewWorld(config, dynamics.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.build(world); err != nil {
		return err
	}
	subscribe(world, logger)
	world.InitSimulation()

	var limiter *rate.Limiter
	if realtime {
		limiter = rate.NewLimiter(rate.Every(time.Duration(dt*float64(time.Second))), 1)
	}

	t := 0.0
	for step := 1; step <= steps; step++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := world.AdvanceSimulation(t, t+dt); err != nil {
			return err
		}
		t += dt

		if every > 0 && step%every == 0 {
			logBodies(world, logger, step, t)
		}
	}

	logger.Info("done", zap.Int("steps", steps), zap.Float64("t", t))
	return nil
}

func subscribe(world *dynamics.World, logger *zap.Logger) {
	world.Subscribe(dynamics.COLLISION, func(event dynamics.Event) {
		e := event.(dynamics.CollisionEvent)
		logger.Info("collision",
			zap.Stringer("a", e.BodyA),
			zap.Stringer("b", e.BodyB),
			zap.Float64("impulse", e.Impulse),
			zap.Any("point", e.Point),
			zap.Any("normal", e.Normal))
	})
	for _, t := range []dynamics.EventType{dynamics.CONTACT_ENTER, dynamics.CONTACT_EXIT} {
		world.Subscribe(t, func(event dynamics.Event) {
			logger.Debug(event.Type().String(), zap.Any("event", event))
		})
	}
}

func logBodies(world *dynamics.World, logger *zap.Logger, step int, t float64) {
	for _, c := range world.Contacts() {
		logger.Debug("contact", zap.Any("contact", c))
	}
	for _, info := range world.Witnesses() {
		if info.HasPlane {
			logger.Debug("witness",
				zap.Stringer("state", info.State),
				zap.Float64("distance", info.Distance))
		}
	}

	world.ForEachBody(func(body *actor.RigidBody) {
		if body.IsStatic() {
			return
		}
		logger.Info("body",
			zap.Int("step", step),
			zap.Float64("t", t),
			zap.Stringer("id", body.ID),
			zap.Any("position", body.X),
			zap.Any("velocity", body.V),
			zap.Any("angular-velocity", body.Omega))
	})
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/akmonengine/quill"
	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/collision"
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const dt = 1.0 / 60.0

// addBody creates a body owning prims, each weighing mass/len(prims)
func addBody(world *quill.World, position mgl64.Vec3, orientation mgl64.Mat3, mass float64, material collision.MaterialID, prims ...geom.Primitive) (*actor.RigidBody, error) {
	body := actor.NewRigidBody()
	skin := collision.NewCollisionSkin(body)
	for _, prim := range prims {
		if _, err := skin.AddPrimitive(prim, material); err != nil {
			return nil, err
		}
	}

	m, com, inertia, err := skin.MassProperties([]geom.PrimitiveProperties{
		geom.NewPrimitiveProperties(geom.Solid, geom.MassTypeMass, mass / float64(len(prims))),
	})
	if err != nil {
		return nil, err
	}
	// the body origin is its centre of mass
	skin.ApplyLocalTransform(geom.NewTransformAt(com.Mul(-1), mgl64.Ident3()))
	body.SetMassProperties(m, inertia)

	body.MoveTo(position, orientation)
	world.AddBody(body)
	return body, nil
}

// SetupScene creates a ground plane, a tilted cube, a bouncing ball and a capsule
func SetupScene(world *quill.World) ([]*actor.RigidBody, error) {
	ground := collision.NewCollisionSkin(nil)
	if _, err := ground.AddPrimitive(geom.NewPlane(mgl64.Vec3{0, 1, 0}, 0), collision.MaterialNormalRough); err != nil {
		return nil, err
	}
	if err := world.AddSkin(ground); err != nil {
		return nil, err
	}

	cube, err := addBody(world,
		mgl64.Vec3{-5, 5, -5}, geom.RotationFromAxisAngle(mgl64.Vec3{0, 0, 1}, mgl64.DegToRad(70)),
		1, collision.MaterialNormalNormal,
		geom.NewBox(mgl64.Vec3{}, mgl64.Ident3(), mgl64.Vec3{3, 3, 3}))
	if err != nil {
		return nil, fmt.Errorf("cube: %w", err)
	}

	ball, err := addBody(world,
		mgl64.Vec3{0, 4, 0}, mgl64.Ident3(),
		1, collision.MaterialBouncyNormal,
		geom.NewSphere(mgl64.Vec3{}, 0.5))
	if err != nil {
		return nil, fmt.Errorf("ball: %w", err)
	}

	capsule, err := addBody(world,
		mgl64.Vec3{3, 2, 0}, geom.RotationFromAxisAngle(mgl64.Vec3{1, 0, 0}, math.Pi/3),
		2, collision.MaterialNormalNormal,
		geom.NewCapsule(mgl64.Vec3{}, mgl64.Ident3(), 1.5, 0.4))
	if err != nil {
		return nil, fmt.Errorf("capsule: %w", err)
	}

	return []*actor.RigidBody{cube, ball, capsule}, nil
}

func skinName(skin *collision.CollisionSkin) string {
	if skin.Owner() == nil {
		return "static"
	}
	return fmt.Sprintf("body %d", skin.Owner().ID)
}

func logBodies(logger *slog.Logger, step int, bodies []*actor.RigidBody) {
	for _, body := range bodies {
		logger.Info("body",
			"step", step,
			"id", body.ID,
			"position", body.Position(),
			"speed", body.Velocity().Len(),
			"state", body.Activity(),
			"contacts", body.Skin().NumCollisions())
	}
}

func main() {
	configPath := flag.String("config", "", "world config file (.toml, .yaml)")
	watch := flag.Bool("watch", false, "reload the config file when it changes, run until interrupted")
	steps := flag.Int("steps", 300, "steps to simulate without -watch")
	every := flag.Int("every", 30, "log the bodies every n steps")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))

	cfg := quill.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = quill.LoadConfig(*configPath); err != nil {
			logger.Error("load config", "err", err)
			os.Exit(1)
		}
	}
	if l, err := quill.ParseLevel(cfg.LogLevel); err == nil {
		level.Set(l)
	}

	world, err := quill.NewWorld(cfg)
	if err != nil {
		logger.Error("create world", "err", err)
		os.Exit(1)
	}
	world.Logger = logger

	world.Events.Subscribe(quill.COLLISION_ENTER, func(e quill.Event) {
		enter := e.(quill.CollisionEnterEvent)
		logger.Debug("collision enter", "a", skinName(enter.SkinA), "b", skinName(enter.SkinB))
	})
	world.Events.Subscribe(quill.ON_SLEEP, func(e quill.Event) {
		logger.Info("sleep", "id", e.(quill.SleepEvent).Body.ID)
	})
	world.Events.Subscribe(quill.ON_WAKE, func(e quill.Event) {
		logger.Info("wake", "id", e.(quill.WakeEvent).Body.ID)
	})

	bodies, err := SetupScene(world)
	if err != nil {
		logger.Error("setup scene", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reloads := make(chan quill.Config, 1)
	if *watch {
		if *configPath == "" {
			logger.Error("-watch needs -config")
			os.Exit(1)
		}
		err := quill.WatchConfig(ctx, *configPath, func(cfg quill.Config, err error) {
			if err != nil {
				logger.Warn("config reload", "err", err)
				return
			}
			select {
			case reloads <- cfg:
			case <-ctx.Done():
			}
		})
		if err != nil {
			logger.Error("watch config", "err", err)
			os.Exit(1)
		}
	}

	tickSeconds := dt
	ticker := time.NewTicker(time.Duration(tickSeconds * float64(time.Second)))
	defer ticker.Stop()
	last := time.Now()

	for step := 1; *watch || step <= *steps; step++ {
		elapsed := dt
		if *watch {
			select {
			case <-ctx.Done():
				return
			case cfg := <-reloads:
				if err := world.SetConfig(cfg); err != nil {
					logger.Warn("config rejected", "err", err)
				} else if l, err := quill.ParseLevel(cfg.LogLevel); err == nil {
					level.Set(l)
					logger.Info("config reloaded", "path", *configPath)
				}
			case now := <-ticker.C:
				elapsed = now.Sub(last).Seconds()
				last = now
			}
		}

		// Step clamps elapsed to the max timestep
		world.Step(elapsed)

		if step%*every == 0 {
			logBodies(logger, step, bodies)
		}
	}
}

package dialysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/hemosim/patient"
	"github.com/sarchlab/hemosim/pid"
	"github.com/sarchlab/hemosim/sim"
)

var _ = Describe("ControlLoop", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should complete every cycle when no leak occurs", func() {
		model := patient.MakeBuilder().
			WithSeed(1).
			WithLeakProbability(0).
			Build()
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			Build("Loop")

		success, err := loop.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(success).To(BeTrue())
		Expect(loop.Cycles()).To(Equal(2000))
		Expect(loop.Status()).To(Equal(StatusCompleted))
		Expect(engine.CurrentTime()).To(BeNumerically("~", 1999*0.2, 1e-6))
	})

	It("should stop on the cycle that detects a leak", func() {
		leakChecks := 0
		model := patient.MakeBuilder().
			WithSeed(1).
			WithLeakSensor(patient.LeakSensorFunc(func() bool {
				leakChecks++
				return leakChecks == 5
			})).
			Build()

		var shown []CycleSnapshot
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithPacer(NoPacing{}).
			WithDisplay(DisplayFunc(func(s CycleSnapshot) {
				shown = append(shown, s)
			})).
			Build("Loop")

		success, err := loop.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(success).To(BeFalse())
		Expect(loop.Status()).To(Equal(StatusLeakDetected))
		Expect(loop.Cycles()).To(Equal(5))
		Expect(leakChecks).To(Equal(5))
		Expect(shown).To(HaveLen(5))
		Expect(shown[4].Sequence).To(Equal(5))
		Expect(shown[4].Leak).To(BeTrue())
		Expect(shown[3].Leak).To(BeFalse())
	})

	It("should leave a plant at its setpoints untouched", func() {
		model := patient.MakeBuilder().
			WithSeed(1).
			WithoutNoise().
			WithLeakProbability(0).
			Build()

		var snapshot CycleSnapshot
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithMaxCycles(1).
			WithPacer(NoPacing{}).
			WithDisplay(DisplayFunc(func(s CycleSnapshot) { snapshot = s })).
			Build("Loop")

		success, err := loop.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(success).To(BeTrue())
		Expect(snapshot.UltrafiltrationAdjustment).To(BeZero())
		Expect(snapshot.PumpAdjustment).To(BeZero())
		Expect(snapshot.OxygenAdjustment).To(BeZero())
		Expect(model.State()).To(Equal(patient.NominalState))
		for _, c := range loop.Controllers() {
			Expect(c.State()).To(Equal(pid.State{}))
		}
	})

	It("should read, regulate and apply each variable in order", func() {
		plant := NewMockPlant(mockCtrl)
		expected := func(err float64) float64 {
			g := pid.DefaultGains
			return g.Kp*err + g.Ki*err + g.Kd*err
		}

		gomock.InOrder(
			plant.EXPECT().ReadPressure().Return(110.0),
			plant.EXPECT().ApplyUltrafiltrationRate(expected(10)),
			plant.EXPECT().ReadFlowRate().Return(280.0),
			plant.EXPECT().ApplyBloodPumpRate(expected(20)),
			plant.EXPECT().ReadOxygenSaturation().Return(93.0),
			plant.EXPECT().ApplyOxygenDelivery(expected(2)),
			plant.EXPECT().DetectLeak().Return(false),
			plant.EXPECT().State().Return(patient.NominalState),
		)

		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(plant).
			WithMaxCycles(1).
			Build("Loop")

		success, err := loop.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(success).To(BeTrue())
	})

	It("should build the snapshot from the plant state after the cycle", func() {
		plant := NewMockPlant(mockCtrl)
		display := NewMockDisplay(mockCtrl)
		pacer := NewMockPacer(mockCtrl)

		plant.EXPECT().ReadPressure().Return(120.0)
		plant.EXPECT().ReadFlowRate().Return(300.0)
		plant.EXPECT().ReadOxygenSaturation().Return(95.0)
		plant.EXPECT().ApplyUltrafiltrationRate(gomock.Any())
		plant.EXPECT().ApplyBloodPumpRate(gomock.Any())
		plant.EXPECT().ApplyOxygenDelivery(gomock.Any())
		plant.EXPECT().DetectLeak().Return(false)
		plant.EXPECT().State().Return(patient.State{
			Pressure: 121, FlowRate: 301, OxygenSaturation: 96,
		})

		show := display.EXPECT().Show(CycleSnapshot{
			Sequence:         1,
			Time:             0,
			Pressure:         121,
			FlowRate:         301,
			OxygenSaturation: 96,
		})
		pacer.EXPECT().Pace().After(show)

		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(plant).
			WithDisplay(display).
			WithPacer(pacer).
			WithMaxCycles(1).
			Build("Loop")

		_, err := loop.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not pace without a display", func() {
		pacer := NewMockPacer(mockCtrl)
		pacer.EXPECT().Pace().Times(0)

		model := patient.MakeBuilder().WithSeed(1).WithLeakProbability(0).Build()
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithPacer(pacer).
			WithMaxCycles(10).
			Build("Loop")

		_, err := loop.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not pace the cycle that detects a leak", func() {
		pacer := NewMockPacer(mockCtrl)
		pacer.EXPECT().Pace().Times(2)

		checks := 0
		model := patient.MakeBuilder().
			WithSeed(1).
			WithLeakSensor(patient.LeakSensorFunc(func() bool {
				checks++
				return checks == 3
			})).
			Build()
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithPacer(pacer).
			WithDisplay(DisplayFunc(func(CycleSnapshot) {})).
			Build("Loop")

		success, err := loop.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(success).To(BeFalse())
	})

	It("should report every cycle to the hooks", func() {
		model := patient.MakeBuilder().WithSeed(5).WithLeakProbability(0).Build()
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithMaxCycles(4).
			Build("Loop")

		var (
			starts    []int
			readings  []Reading
			snapshots []CycleSnapshot
		)
		loop.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			Expect(ctx.Domain).To(BeIdenticalTo(loop))

			switch ctx.Pos {
			case HookPosCycleStart:
				starts = append(starts, ctx.Item.(int))
			case HookPosReading:
				readings = append(readings, ctx.Item.(Reading))
			case HookPosCycleEnd:
				snapshots = append(snapshots, ctx.Item.(CycleSnapshot))
				Expect(ctx.Detail).To(HaveLen(3))
			case HookPosLeak:
				Fail("no leak expected")
			}
		}))

		_, err := loop.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(starts).To(Equal([]int{1, 2, 3, 4}))
		Expect(readings).To(HaveLen(12))
		Expect(readings[0].Variable).To(Equal(VariablePressure))
		Expect(readings[1].Variable).To(Equal(VariableFlowRate))
		Expect(readings[2].Variable).To(Equal(VariableOxygenSaturation))
		Expect(snapshots).To(HaveLen(4))
		Expect(snapshots[3].Time).To(BeNumerically("~", 0.6, 1e-9))
	})

	It("should only run once", func() {
		model := patient.MakeBuilder().WithSeed(1).WithLeakProbability(0).Build()
		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithMaxCycles(1).
			Build("Loop")

		_, err := loop.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(func() { _, _ = loop.Run() }).To(Panic())
	})

	It("should reject invalid parameters", func() {
		model := patient.MakeBuilder().WithSeed(1).Build()

		Expect(func() { MakeBuilder().WithPlant(model).Build("L") }).To(Panic())
		Expect(func() { MakeBuilder().WithEngine(engine).Build("L") }).To(Panic())
		Expect(func() {
			MakeBuilder().WithEngine(engine).WithPlant(model).
				WithMaxCycles(0).Build("L")
		}).To(Panic())
		Expect(func() {
			MakeBuilder().WithEngine(engine).WithPlant(model).
				WithControllers(pid.NewPressureController(pid.DefaultGains), nil, nil).
				Build("L")
		}).To(Panic())
	})

	It("should use injected controllers", func() {
		model := patient.MakeBuilder().WithSeed(1).WithLeakProbability(0).Build()
		bp := pid.NewPressureController(pid.Gains{Kp: 1})
		flow := pid.NewFlowRateController(pid.Gains{Kp: 1})
		o2 := pid.NewOxygenSaturationController(pid.Gains{Kp: 1})

		loop := MakeBuilder().
			WithEngine(engine).
			WithPlant(model).
			WithControllers(bp, flow, o2).
			WithMaxCycles(3).
			Build("Loop")

		Expect(loop.Controllers()).To(Equal([]*pid.Controller{bp, flow, o2}))

		_, err := loop.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(bp.State().ErrorSum).NotTo(BeZero())
	})
})

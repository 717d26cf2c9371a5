package screen

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

// DNNScreen runs an ONNX image classifier over uploads and rejects files whose
// unsafe-class score exceeds the cutoff. Files that pass the type screen but
// cannot be decoded are admitted: screening is advisory, not a gate on decode
// quality.
type DNNScreen struct {
	Net     gocv.Net
	Enabled bool

	typeScreen *TypeScreen

	InputSize    int
	ScaleFactor  float64
	MeanVal      gocv.Scalar
	UnsafeIndex  int
	UnsafeCutoff float32
}

// NewDNNScreen loads the classifier model. An empty or unloadable model path
// disables pixel screening; type screening still applies.
func NewDNNScreen(modelPath string, unsafeCutoff float64) *DNNScreen {
	s := &DNNScreen{
		typeScreen:   NewTypeScreen(),
		InputSize:    224,
		ScaleFactor:  1.0 / 255.0,
		MeanVal:      gocv.NewScalar(0, 0, 0, 0),
		UnsafeIndex:  1,
		UnsafeCutoff: float32(unsafeCutoff),
	}

	if modelPath == "" {
		log.Println("screen(dnn): model path is empty, pixel screening disabled")
		return s
	}

	log.Printf("screen(dnn): Attempting to load model: %s", modelPath)
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		log.Printf("screen(dnn): ERROR - ReadNet returned an empty network. Check file path and integrity.")
		return s
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	log.Println("screen(dnn): successfully loaded content model")

	s.Net = net
	s.Enabled = true
	return s
}

func (s *DNNScreen) Check(data []byte, contentType string) (bool, string, error) {
	ok, reason, err := s.typeScreen.Check(data, contentType)
	if !ok || err != nil {
		return ok, reason, err
	}
	if !s.Enabled {
		return true, "", nil
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		return true, "", nil
	}
	defer img.Close()

	blob := gocv.BlobFromImage(img, s.ScaleFactor,
		image.Pt(s.InputSize, s.InputSize), s.MeanVal, true, false)
	defer blob.Close()

	s.Net.SetInput(blob, "")
	prob := s.Net.Forward("")
	defer prob.Close()

	if prob.Empty() || prob.Total() <= s.UnsafeIndex {
		return true, "", nil
	}

	score := prob.GetFloatAt(0, s.UnsafeIndex)
	if score > s.UnsafeCutoff {
		log.Printf("screen(dnn): rejecting upload, unsafe score %.3f exceeds cutoff %.3f", score, s.UnsafeCutoff)
		return false, ReasonUnsafeContent, nil
	}
	return true, "", nil
}

// Close releases the loaded network.
func (s *DNNScreen) Close() {
	if s.Enabled {
		s.Net.Close()
	}
}

package mousepose

import "github.com/golang/geo/r3"

// refineEars attempts to place the bilateral ear landmarks and the derived eye
// center. This is a coarse refinement on top of the nose/tail detector: it
// projects head-region points onto the secondary axis and takes the lateral
// extremes. Ears stay nil when the head region is too sparse to trust.
func (d *Detector) refineEars(points []r3.Vector, frame *PrincipalAxisFrame, set *LandmarkSet) {
	cfg := d.cfg.Ears

	headRadius := boundingBoxDiagonal(points) * cfg.HeadRadiusFraction
	var head []r3.Vector
	for _, pt := range points {
		if pt.Sub(set.Nose).Norm() <= headRadius {
			head = append(head, pt)
		}
	}
	if len(head) < cfg.MinHeadPoints {
		return
	}

	lateral := frame.Secondary()
	leftIdx, rightIdx := 0, 0
	leftProj, rightProj := 0.0, 0.0
	for i, pt := range head {
		proj := pt.Sub(set.Nose).Dot(lateral)
		if i == 0 || proj < leftProj {
			leftProj = proj
			leftIdx = i
		}
		if i == 0 || proj > rightProj {
			rightProj = proj
			rightIdx = i
		}
	}
	if leftIdx == rightIdx {
		return
	}

	left := head[leftIdx]
	right := head[rightIdx]
	set.LeftEar = &left
	set.RightEar = &right

	// Eye center: a fixed fraction of the way from the nose to the ear midpoint.
	mid := left.Add(right).Mul(0.5)
	eye := set.Nose.Add(mid.Sub(set.Nose).Mul(cfg.EyeCenterFraction))
	set.EyeCenter = &eye
}
